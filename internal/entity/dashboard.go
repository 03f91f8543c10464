package entity

type Dashboard struct {
	Customers           int                `json:"customers"`
	Services            int                `json:"services"`
	Tasks               int                `json:"tasks"`
	TasksByStatus       map[TaskStatus]int `json:"tasksByStatus"`
	OverdueTasks        int                `json:"overdueTasks"`
	Payments            int                `json:"payments"`
	Documents           int                `json:"documents"`
	Meetings            int                `json:"meetings"`
	PendingCustomers    int                `json:"pendingCustomers"`
	PendingMeetings     int                `json:"pendingMeetings"`
	UnreadNotifications int                `json:"unreadNotifications"`

	CustomersByCountry  map[string]int   `json:"customersByCountry"`
	CustomersByCategory map[Category]int `json:"customersByCategory"`
	// AverageTaskProgress is 0 when no task is visible.
	AverageTaskProgress float64 `json:"averageTaskProgress"`
}
