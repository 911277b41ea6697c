package redis

// DefaultKeyPrefix namespaces url entries: <prefix><lookup key> -> reason.
const DefaultKeyPrefix = "urlinfo:url:"

// keyspace maps lookup keys to Redis keys for one prefix.
type keyspace struct {
	prefix string
}

func (k keyspace) URLKey(lookupKey string) string {
	return k.prefix + lookupKey
}

func (k keyspace) URLKeys(lookupKeys []string) []string {
	out := make([]string, len(lookupKeys))
	for i, lk := range lookupKeys {
		out[i] = k.URLKey(lk)
	}
	return out
}

// AllKey is the set of every stored lookup key. It lives outside the prefix
// so no lookup key can address it.
func (k keyspace) AllKey() string {
	return "set:" + k.prefix
}
