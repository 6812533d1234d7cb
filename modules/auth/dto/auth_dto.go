package dto

type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type ConnectionStatusResponse struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
}
