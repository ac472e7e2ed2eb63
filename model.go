package hibp

// Breach is a single breach entry from the breach API. Dates are kept as
// the API's wire strings (BreachDate is a bare date, AddedDate an RFC
// 3339 timestamp).
type Breach struct {
	Name         string   `json:"Name"`
	Title        string   `json:"Title"`
	Domain       string   `json:"Domain"`
	BreachDate   string   `json:"BreachDate"`
	AddedDate    string   `json:"AddedDate"`
	PwnCount     int64    `json:"PwnCount"`
	Description  string   `json:"Description"`
	DataClasses  []string `json:"DataClasses"`
	IsVerified   bool     `json:"IsVerified"`
	IsSensitive  bool     `json:"IsSensitive"`
	IsSpamList   bool     `json:"IsSpamList"`
	IsRetired    bool     `json:"IsRetired"`
	IsFabricated bool     `json:"IsFabricated"`
}

// Paste is a single paste entry from the paste API.
type Paste struct {
	Source     string `json:"Source"`
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	Date       string `json:"Date"`
	EmailCount int64  `json:"EmailCount"`
}
