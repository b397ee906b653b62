package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
// Username may carry either a username or an email address.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginStatusDTO is the outcome of a login attempt. Token is only set when
// Logged is true; failed attempts never carry a credential.
type LoginStatusDTO struct {
	Username string `json:"username"`
	Logged   bool   `json:"logged"`
	Token    string `json:"token,omitempty"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}
