package models

// Scene is one detected shot of an uploaded video
type Scene struct {
	ID        int     `json:"id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// FindScene returns the scene with the given id
func FindScene(scenes []Scene, id int) (Scene, bool) {
	for _, s := range scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}
