package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonSTTUpload  ReasonCode = "stt_upload"
	ReasonSTTCreate  ReasonCode = "stt_create"
	ReasonSTTPoll    ReasonCode = "stt_poll"
	ReasonSTTTimeout ReasonCode = "stt_timeout"
	ReasonSTTJob     ReasonCode = "stt_job_failed"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMParse     ReasonCode = "llm_parse"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"

	ReasonTTSSynthesize ReasonCode = "tts_synthesize"
	ReasonTTSRateLimit  ReasonCode = "tts_rate_limit"

	ReasonMicAcquire    ReasonCode = "mic_acquire"
	ReasonPlayback      ReasonCode = "playback"
	ReasonStoreAppend   ReasonCode = "store_append"
	ReasonNotifySend    ReasonCode = "notify_send"
	ReasonTransportSend ReasonCode = "transport_send"
)
