package params

import "time"

const (
	ServerBodyLimit       = 1048576 // 1 MiB
	ServerIdleTimeout     = 30 * time.Second
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 10 * time.Second
	ServerShutdownTimeout = 10 * time.Second
	HealthCheckServerAddr = ":3001"          // health check server address
	ReadinessCheckTimeout = 2 * time.Second  // readiness probe waits this long for a worker slot
	SignatureCallTimeout  = 10 * time.Second // default deadline for one generate or verify call
	SignatureMaxSaltCost  = 12               // highest cost accepted from a client supplied salt
	NaverTokenURL         = "https://api.commerce.naver.com/external/v1/oauth2/token"
	NaverTokenTypeSelf    = "SELF"
	NaverTokenTypeSeller  = "SELLER"
	NaverTokenTimeout     = 10 * time.Second
	LogFileMaxSizeMB      = 100
	LogFileMaxBackups     = 5
	LogFileMaxAgeDays     = 28
	ServiceName           = "naversign"
)
