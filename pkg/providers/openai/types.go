package openai

// Client-side protocol.

type clientMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

type clientDelta struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type clientError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type completion struct {
	Type         string `json:"type"`
	TotalTokens  int    `json:"total_tokens"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Transcript   string `json:"transcript"`
}

// Vendor-side protocol.

// event is the outbound realtime event envelope.
type event struct {
	Type    string         `json:"type"`
	Session *sessionConfig `json:"session,omitempty"`
}

type sessionConfig struct {
	Modalities        []string `json:"modalities"`
	Instructions      string   `json:"instructions"`
	Voice             string   `json:"voice"`
	InputAudioFormat  string   `json:"input_audio_format"`
	OutputAudioFormat string   `json:"output_audio_format"`

	// TurnDetection is emitted as an explicit null so server VAD stays off
	// and the relay's commit/response cycle drives turn taking.
	TurnDetection           any                  `json:"turn_detection"`
	InputAudioTranscription *transcriptionConfig `json:"input_audio_transcription,omitempty"`
	Temperature             float64              `json:"temperature"`
}

type transcriptionConfig struct {
	Model string `json:"model"`
}

type appendAudio struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type serverEvent struct {
	Type     string          `json:"type"`
	Delta    string          `json:"delta,omitempty"`
	Error    *serverError    `json:"error,omitempty"`
	Response *serverResponse `json:"response,omitempty"`
}

type serverError struct {
	Message string `json:"message"`
}

type serverResponse struct {
	Usage  *usage       `json:"usage,omitempty"`
	Output []outputItem `json:"output,omitempty"`
}

type usage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type outputItem struct {
	Content []contentItem `json:"content,omitempty"`
}

type contentItem struct {
	Transcript string `json:"transcript,omitempty"`
}
