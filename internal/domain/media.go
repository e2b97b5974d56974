package domain

// MediaState is the last announced camera/mic state of a session.
// Last write wins, no history is kept.
type MediaState struct {
	IsCameraOn bool `json:"isCameraOn"`
	IsMicOn    bool `json:"isMicOn"`
}
