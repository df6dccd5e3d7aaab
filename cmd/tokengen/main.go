package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/adapter/auth"
)

// Mints a bearer token for local use, signed with JWT_SECRET.
func main() {
	subject := flag.String("sub", "dev", "token subject")
	roles := flag.String("roles", "", "comma separated roles, e.g. Manager")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	issuer := flag.String("iss", envOr("JWT_ISSUER", "logitrack"), "issuer")
	audience := flag.String("aud", envOr("JWT_AUDIENCE", "logitrack"), "audience")
	flag.Parse()

	a, err := auth.NewJWTAuthenticator(auth.Config{
		Secret:   os.Getenv("JWT_SECRET"),
		Issuer:   *issuer,
		Audience: *audience,
		TokenTTL: *ttl,
	})
	if err != nil {
		log.Fatalf("init authenticator: %v", err)
	}

	token, err := a.Issue(*subject, parseRoles(*roles))
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
}

// parseRoles splits a comma separated list, dropping blanks around and between entries.
func parseRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
