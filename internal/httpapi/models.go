package httpapi

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type createNoteRequest struct {
	Text string `json:"note_text"`
	Date string `json:"note_date"`
}

type updateNoteRequest struct {
	Text string `json:"note_text"`
}

type statusResponse struct {
	Status bool `json:"status"`
}
