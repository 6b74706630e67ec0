package session

// Data is what the server keeps for a logged in browser.
type Data struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}
