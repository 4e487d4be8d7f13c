package httpapi

const (
	jsonKeyError   = "error"
	jsonKeySuccess = "success"
	jsonKeyMessage = "message"
	jsonKeyData    = "data"
	jsonKeyErrors  = "errors"

	errorValueUnauthorized       = "unauthorized"
	errorValueInvalidJSON        = "invalid_json"
	errorValueRateLimited        = "rate_limited"
	errorValueInvalidCredentials = "invalid_credentials"
	errorValueStreamUnavailable  = "stream_unavailable"
	errorValueMediaUnavailable   = "media_unavailable"
	errorValueMissingFile        = "missing_file"
	errorValueUnsupportedMedia   = "unsupported_media_type"
	errorValueFileTooLarge       = "file_too_large"
	errorValueUploadFailed       = "upload_failed"
	errorValueTokenFailed        = "token_failed"

	messageInvalidData        = "Dados inválidos"
	messageInternalError      = "Erro interno do servidor"
	messageContactSaved       = "Contato salvo com sucesso!"
	messageContactSavedDemo   = "Contato enviado com sucesso! (modo demo)"
	messageTooManyRequests    = "Muitas tentativas. Aguarde alguns instantes."
	messageInvalidCredentials = "Credenciais inválidas. Tente novamente."
	messageRecordSaved        = "Registro salvo com sucesso"
	messageRecordDeleted      = "Registro excluído com sucesso"
	messageStatusUpdated      = "Status atualizado"

	// LoginPath is the only admin page reachable without a session.
	LoginPath     = "/admin/login"
	LogoutPath    = "/admin/logout"
	AdminHomePath = "/admin"

	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	logEventLoadSession      = "load_session"
	logEventSaveSession      = "save_session"
	logEventRenderTemplate   = "render_template"
	logEventSaveContact      = "save_contact"
	logEventNotifyContact    = "notify_contact"
	logEventUploadMedia      = "upload_media"
	logEventRecoveredPanic   = "recovered_panic"
	logEventMutationRejected = "admin_mutation_rejected"
)
