package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type GradeResponse struct {
	OK     bool    `json:"ok"`
	Profit float64 `json:"profit"`
}

type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

type RecapStatusResponse struct {
	Date   string `json:"date"`
	Posted bool   `json:"posted"`
}
