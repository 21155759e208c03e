package access

import "strings"

type PathClass int

const (
	Public PathClass = iota
	ProtectedPage
	ProtectedAPI
	AdminPage
	AdminAPI
	AuthRedirect
)

func (c PathClass) String() string {
	switch c {
	case ProtectedPage:
		return "protected_page"
	case ProtectedAPI:
		return "protected_api"
	case AdminPage:
		return "admin_page"
	case AdminAPI:
		return "admin_api"
	case AuthRedirect:
		return "auth_redirect"
	default:
		return "public"
	}
}

func (c PathClass) isAPI() bool {
	return c == ProtectedAPI || c == AdminAPI
}

// Rule binds a path prefix to a class.
type Rule struct {
	Prefix string
	Class  PathClass
}

// Policy is the route table plus redirect targets. Rules are data; Classify walks them
// in class precedence order, admin first.
type Policy struct {
	Rules       []Rule
	SignInPage  string
	LandingPage string
	SafePage    string
}

func DefaultPolicy() Policy {
	return Policy{
		Rules: []Rule{
			{Prefix: "/admin", Class: AdminPage},
			{Prefix: "/api/admin", Class: AdminAPI},
			{Prefix: "/dashboard", Class: ProtectedPage},
			{Prefix: "/api/orders", Class: ProtectedAPI},
			{Prefix: "/api/auth/session", Class: ProtectedAPI},
			{Prefix: "/signin", Class: AuthRedirect},
			{Prefix: "/register", Class: AuthRedirect},
		},
		SignInPage:  "/signin",
		LandingPage: "/dashboard",
		SafePage:    "/dashboard",
	}
}

var classPrecedence = []PathClass{AdminAPI, AdminPage, ProtectedAPI, ProtectedPage, AuthRedirect}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// matches is an exact match or a prefix followed by a slash. No wildcards.
func matches(path, prefix string) bool {
	prefix = normalize(prefix)
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func (p Policy) Classify(path string) PathClass {
	path = normalize(path)
	for _, class := range classPrecedence {
		for _, rule := range p.Rules {
			if rule.Class == class && matches(path, rule.Prefix) {
				return class
			}
		}
	}
	return Public
}
