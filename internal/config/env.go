package config

import (
	"github.com/spf13/viper"
)

// Env holds the settings taken from the process environment. The token
// only ever comes from here or a flag, never from a config file.
type Env struct {
	Token  string
	Org    string
	APIURL string
}

// LoadEnv reads CHARTSCOUT_TOKEN (falling back to GITHUB_TOKEN),
// CHARTSCOUT_ORG and CHARTSCOUT_API_URL.
func LoadEnv() Env {
	v := viper.New()
	_ = v.BindEnv("token", "CHARTSCOUT_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("org", "CHARTSCOUT_ORG")
	_ = v.BindEnv("api_url", "CHARTSCOUT_API_URL")
	return Env{
		Token:  v.GetString("token"),
		Org:    v.GetString("org"),
		APIURL: v.GetString("api_url"),
	}
}
