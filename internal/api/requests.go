package api

// Request and response bodies. Validation tags are enforced server-side by
// go-playground/validator; the client relies on server-side messages.

type SignupRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// SessionInfo describes the caller's current session.
type SessionInfo struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type OpenConversationRequest struct {
	Participant string `json:"participant" validate:"required"`
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type CreatePostRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Body          string   `json:"body" validate:"required,max=10000"`
	Tags          []string `json:"tags" validate:"max=5,dive,max=30"`
	AttachmentKey string   `json:"attachmentKey"`
}

type AddCommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

type ReportPostRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type CreateFlashcardRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	StorageKey string `json:"storageKey" validate:"required"`
}

// UploadSlot is a presigned PUT target for a deck PDF.
type UploadSlot struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExplainRequest struct {
	Question      string            `json:"question" validate:"required"`
	Choices       map[string]string `json:"choices" validate:"required"`
	CorrectAnswer string            `json:"correctAnswer" validate:"required,len=1"`
}

type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// UpdateProfileRequest carries partial profile updates; nil fields are left
// untouched.
type UpdateProfileRequest struct {
	Email          *string `json:"email" validate:"omitempty,email"`
	PhoneE164      *string `json:"phoneE164" validate:"omitempty,e164"`
	FirstName      *string `json:"firstName" validate:"omitempty,max=100"`
	LastName       *string `json:"lastName" validate:"omitempty,max=100"`
	DisplayName    *string `json:"displayName" validate:"omitempty,max=100"`
	AvatarURL      *string `json:"avatarUrl" validate:"omitempty,url"`
	Bio            *string `json:"bio" validate:"omitempty,max=1000"`
	Timezone       *string `json:"timezone" validate:"omitempty,max=64"`
	Locale         *string `json:"locale" validate:"omitempty,max=16"`
	MarketingOptIn *bool   `json:"marketingOptIn"`
}

type RequestEmailCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required,min=4,max=10"`
}

type RequestSmsCodeRequest struct {
	PhoneE164 string `json:"phoneE164" validate:"required,e164"`
}

type VerifyPhoneRequest struct {
	Code string `json:"code" validate:"required,min=4,max=10"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type PasswordResetVerifyResponse struct {
	Valid bool `json:"valid"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

// FieldError is one entry of a 400 validation payload.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}
