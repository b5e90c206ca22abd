package config

// RateLimitConfig задает ограничение частоты запросов на один IP.
// Нулевой RPS отключает ограничение.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"USERS_RATE_LIMIT_RPS" env-default:"0"`
	Burst int     `yaml:"burst" env:"USERS_RATE_LIMIT_BURST" env-default:"20"`
}

// Enabled сообщает, включено ли ограничение.
func (r *RateLimitConfig) Enabled() bool {
	return r.RPS > 0
}
