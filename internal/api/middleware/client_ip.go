package middleware

import (
	"net"
	"net/http"

	"keyring/internal/pkg/network"
	"keyring/internal/platform/models"
)

const adminRole = models.RoleAdminUser

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func clientInSubnets(r *http.Request, subnets string) bool {
	return network.IPInSubnets(clientIP(r), subnets)
}
