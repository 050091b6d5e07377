package conversation

import "strings"

// AllowList admits only the listed user ids. An empty list admits everyone.
type AllowList map[string]struct{}

// ParseAllowList reads a comma separated list of user ids
func ParseAllowList(s string) AllowList {
	list := AllowList{}
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			list[id] = struct{}{}
		}
	}
	return list
}

// Allowed reports whether user may use the bot
func (a AllowList) Allowed(user string) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[user]
	return ok
}
