//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package webclient

import (
	"fmt"
	"net/url"

	"golang.org/x/net/idna"
)

// ParseURL splits rawURL into the pieces spec §6 needs for routing and
// request construction: scheme, host, port, and a request target (path
// plus optional query string). Hostnames are normalized to ASCII/Punycode
// via golang.org/x/net/idna so internationalized domain names dial
// correctly.
func ParseURL(rawURL string) (scheme, host, port, target string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", "", "", fmt.Errorf("webclient: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", "", "", "", fmt.Errorf("webclient: missing host in %q", rawURL)
	}

	scheme = u.Scheme
	host = u.Hostname()
	if ascii, convErr := idna.Lookup.ToASCII(host); convErr == nil {
		host = ascii
	}

	port = u.Port()
	if port == "" {
		if scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	target = u.Path
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return scheme, host, port, target, nil
}
