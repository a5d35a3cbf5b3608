package saltapi

const (
	LoginEndpoint         = "/login"
	LogoutEndpoint        = "/logout"
	KeysEndpoint          = "/keys"
	AcceptKeyEndpoint     = "/hook/minions/key/accept"
	RefreshPillarEndpoint = "/hook/refresh_pillar"
	RunHeatEndpoint       = "/hook/cmd/run_heat"
	RunVRAEndpoint        = "/hook/cmd/run_vra"
)
