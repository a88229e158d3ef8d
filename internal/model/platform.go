package model

// Platform identifies the mobile OS the subsystem is embedded in.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Runtime notification permission became a dedicated runtime permission on
// Android 13.
const AndroidNotificationPermissionAPILevel = 33

// Device describes the host device and app build. APILevel is only
// meaningful on Android.
type Device struct {
	Platform   Platform `json:"platform"`
	APILevel   int      `json:"-"`
	Model      string   `json:"model"`
	OSVersion  string   `json:"osVersion"`
	AppVersion string   `json:"appVersion"`
}
