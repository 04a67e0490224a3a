package gemini

// Client-side envelope: browsers send snake_case realtime input frames and
// receive flat text/audio frames.

type setupEnvelope struct {
	Setup map[string]any `json:"setup"`
}

type clientInput struct {
	RealtimeInput *realtimeInput `json:"realtime_input,omitempty"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"media_chunks"`
}

type mediaChunk struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type clientText struct {
	Text string `json:"text"`
}

type clientAudio struct {
	Audio string `json:"audio"`
}

// Vendor-side messages: the Live API speaks camelCase.

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	ModelTurn    *modelTurn `json:"modelTurn,omitempty"`
	TurnComplete bool       `json:"turnComplete,omitempty"`
	Interrupted  bool       `json:"interrupted,omitempty"`
}

type modelTurn struct {
	Parts []turnPart `json:"parts"`
}

type turnPart struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}
