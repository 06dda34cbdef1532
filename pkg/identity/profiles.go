package identity

import (
	utls "github.com/refraction-networking/utls"
)

// Profile pairs a browser User-Agent with a matching TLS ClientHello so an
// identity's wire fingerprint and its declared signature agree.
type Profile struct {
	Name        string
	UserAgent   string
	AcceptLang  string
	ClientHello *utls.ClientHelloID
}

// DefaultProfiles returns the built-in client signature catalog. Pool
// construction assigns these to identities by rotation, so the catalog
// order is part of the deterministic identity layout.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:        "chrome-120-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloChrome_120,
		},
		{
			Name:        "chrome-120-mac",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloChrome_120,
		},
		{
			Name:        "chrome-120-linux",
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AcceptLang:  "en-US,en;q=0.8",
			ClientHello: &utls.HelloChrome_120,
		},
		{
			Name:        "chrome-112-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
			AcceptLang:  "en-GB,en;q=0.9",
			ClientHello: &utls.HelloChrome_112_PSK_Shuf,
		},
		{
			Name:        "chrome-106-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloChrome_106_Shuffle,
		},
		{
			Name:        "chrome-102-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/102.0.0.0 Safari/537.36",
			AcceptLang:  "de-DE,de;q=0.9,en;q=0.7",
			ClientHello: &utls.HelloChrome_102,
		},
		{
			Name:        "chrome-100-mac",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.75 Safari/537.36",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloChrome_100,
		},
		{
			Name:        "chrome-android",
			UserAgent:   "Mozilla/5.0 (Linux; Android 14; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.230 Mobile Safari/537.36",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloChrome_120,
		},
		{
			Name:        "firefox-120-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
			AcceptLang:  "en-US,en;q=0.5",
			ClientHello: &utls.HelloFirefox_120,
		},
		{
			Name:        "firefox-120-mac",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:120.0) Gecko/20100101 Firefox/120.0",
			AcceptLang:  "en-US,en;q=0.5",
			ClientHello: &utls.HelloFirefox_120,
		},
		{
			Name:        "firefox-105-linux",
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64; rv:105.0) Gecko/20100101 Firefox/105.0",
			AcceptLang:  "ru-RU,ru;q=0.8,en;q=0.3",
			ClientHello: &utls.HelloFirefox_105,
		},
		{
			Name:        "firefox-102-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:102.0) Gecko/20100101 Firefox/102.0",
			AcceptLang:  "fr-FR,fr;q=0.8,en;q=0.5",
			ClientHello: &utls.HelloFirefox_102,
		},
		{
			Name:        "safari-17-mac",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloSafari_16_0,
		},
		{
			Name:        "safari-ios-17",
			UserAgent:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloIOS_14,
		},
		{
			Name:        "safari-ios-13",
			UserAgent:   "Mozilla/5.0 (iPhone; CPU iPhone OS 13_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.1 Mobile/15E148 Safari/604.1",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloIOS_13,
		},
		{
			Name:        "edge-120-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloEdge_106,
		},
		{
			Name:        "edge-85-win",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.83 Safari/537.36 Edg/85.0.564.44",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloEdge_85,
		},
		{
			Name:        "randomized",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			AcceptLang:  "en-US,en;q=0.9",
			ClientHello: &utls.HelloRandomized,
		},
	}
}
