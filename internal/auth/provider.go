package auth

// CachedSession returns the cached token when it is still valid for
// endpoint, or nil. An expired, missing, corrupted or foreign token is a
// cache miss.
func CachedSession(cachePath, endpoint string) *Token {
	if cachePath == "" {
		return nil
	}
	token, err := LoadToken(cachePath)
	if err != nil || !token.ValidFor(endpoint) {
		return nil
	}
	return token
}
