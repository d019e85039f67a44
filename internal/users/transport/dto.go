package transport

// Role tags for marketplace users.
const (
	RoleClient   = "CLIENT"
	RoleEmployee = "EMPLOYEE"
)

// SetRadiusRequest is the request body for updating a user's search radius.
type SetRadiusRequest struct {
	Radius float64 `json:"radius" validate:"required,gt=0"`
}

// NearbyEmployeesRequest is the query for radius-based employee matching.
type NearbyEmployeesRequest struct {
	Radius float64 `form:"radius" binding:"required,gt=0"`
}

// RequestingUser identifies the user a proximity query ran for.
type RequestingUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state,omitempty"`
}

// EmployeeResponse is an employee match with profession and location.
type EmployeeResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone,omitempty"`
	ProfileColor   string  `json:"profileColor,omitempty"`
	Profession     string  `json:"profession,omitempty"`
	City           string  `json:"city"`
	State          string  `json:"state,omitempty"`
	CityDistanceKm float64 `json:"cityDistanceKm"`
}

// NearbyEmployeesResponse is the ordered employee match set.
type NearbyEmployeesResponse struct {
	User      RequestingUser     `json:"user"`
	RadiusKm  float64            `json:"radiusKm"`
	Total     int                `json:"total"`
	Employees []EmployeeResponse `json:"employees"`
}

// SearchEmployeesRequest is the query for the in-radius employee search.
type SearchEmployeesRequest struct {
	Query string `form:"q" binding:"required,min=1"`
}

// EmployeeSummary is the compact shape returned by the employee search.
type EmployeeSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Profession string `json:"profession,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
}
