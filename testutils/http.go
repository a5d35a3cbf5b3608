package testutils

import (
	"fmt"
)

const (
	Master       = "salt-master-1"
	OtherMaster  = "salt-master-2"
	APIPort      = 8000
	FlaskPort    = 5000
	MinionID     = "web-01.example.com"
	StackID      = "5aa19d2a-4bdf-4687-a850-1804756b3f1f"
	DummyToken   = "6d1b722e8e1a35e2c79e4d2b0d3e5a6c7f8a9b0c"
	MetadataUrl  = "http://169.254.0.1:8080/metadata.yaml"
	DummyWaitUrl = "https://heat.example.com:8000/v1/signal/waitcondition"
)

var (
	RootUrl      = APIUrl(Master)
	LoginUrl     = RootUrl + "/login"
	LogoutUrl    = RootUrl + "/logout"
	KeysUrl      = RootUrl + "/keys"
	AcceptKeyUrl = RootUrl + "/hook/minions/key/accept"
	RefreshUrl   = RootUrl + "/hook/refresh_pillar"
	RunHeatUrl   = RootUrl + "/hook/cmd/run_heat"
	RunVRAUrl    = RootUrl + "/hook/cmd/run_vra"

	CompanionUrl  = CompanionRootUrl(Master)
	SysStateUrl   = CompanionUrl + "/add_sys_state/"
	PillarDataUrl = CompanionUrl + "/create_pillar_data/"
)

// APIUrl returns the salt-api root URL of a master.
func APIUrl(master string) string {
	return fmt.Sprintf("https://%s:%d", master, APIPort)
}

// CompanionRootUrl returns the companion service root URL of a master.
func CompanionRootUrl(master string) string {
	return fmt.Sprintf("http://%s:%d", master, FlaskPort)
}

// CallKey formats a request the way httpmock.GetCallCountInfo reports it.
func CallKey(method, url string) string {
	return method + " " + url
}
