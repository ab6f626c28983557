package domain

// HabitColor is the display color of a habit.
type HabitColor string

// Habit colors.
const (
	ColorBlue   HabitColor = "BLUE"
	ColorRed    HabitColor = "RED"
	ColorGreen  HabitColor = "GREEN"
	ColorYellow HabitColor = "YELLOW"
	ColorPurple HabitColor = "PURPLE"
	ColorOrange HabitColor = "ORANGE"
	ColorPink   HabitColor = "PINK"
	ColorTeal   HabitColor = "TEAL"
)

// DefaultHabitColor is applied when a habit is created without a color.
const DefaultHabitColor = ColorBlue

// HabitColors lists every accepted color.
var HabitColors = []HabitColor{
	ColorBlue, ColorRed, ColorGreen, ColorYellow,
	ColorPurple, ColorOrange, ColorPink, ColorTeal,
}

// Valid reports whether c is one of HabitColors.
func (c HabitColor) Valid() bool {
	for _, v := range HabitColors {
		if v == c {
			return true
		}
	}
	return false
}

// HabitIcon is the display icon of a habit.
type HabitIcon string

// Habit icons.
const (
	IconSave       HabitIcon = "SAVE"
	IconBook       HabitIcon = "BOOK"
	IconWeights    HabitIcon = "WEIGHTS"
	IconMeditation HabitIcon = "MEDITATION"
	IconRunning    HabitIcon = "RUNNING"
	IconWater      HabitIcon = "WATER"
	IconSleep      HabitIcon = "SLEEP"
	IconCode       HabitIcon = "CODE"
)

// DefaultHabitIcon is applied when a habit is created without an icon.
const DefaultHabitIcon = IconSave

// HabitIcons lists every accepted icon.
var HabitIcons = []HabitIcon{
	IconSave, IconBook, IconWeights, IconMeditation,
	IconRunning, IconWater, IconSleep, IconCode,
}

// Valid reports whether i is one of HabitIcons.
func (i HabitIcon) Valid() bool {
	for _, v := range HabitIcons {
		if v == i {
			return true
		}
	}
	return false
}
