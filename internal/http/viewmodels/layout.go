package viewmodels

type LayoutData struct {
	Title      string
	CSRFToken  string
	RequestID  string
	ActivePath string
	Toast      *ToastViewData
}

type ToastViewData struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type HomeViewData struct {
	Layout  LayoutData
	ImageID string
	Error   string
}
