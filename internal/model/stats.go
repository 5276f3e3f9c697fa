package model

// Summary is the dashboard statistics block for one user.
type Summary struct {
	TotalHabits      int `json:"totalHabits"`
	TotalCompletions int `json:"totalCompletions"`
	CurrentStreak    int `json:"currentStreak"`
	WeekCompletions  int `json:"weekCompletions"`
}

// DateBucket groups one day's completions across habits for heatmap
// rendering. Days without completions are not represented.
type DateBucket struct {
	Date        string   `json:"completion_date"`
	Count       int      `json:"completion_count"`
	HabitTitles []string `json:"habit_titles"`
}
