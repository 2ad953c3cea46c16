package utils

import "strings"

// paramSchemes are the schemes whose last path segment may carry ";params".
var paramSchemes = map[string]bool{
	"": true, "ftp": true, "hdl": true, "prospero": true, "http": true,
	"imap": true, "https": true, "shttp": true, "rtsp": true, "rtsps": true,
	"rtspu": true, "sip": true, "sips": true, "mms": true, "sftp": true, "tel": true,
}

// SplitURL returns the network location and raw path of a URL.
//
// The split is lexical: the scheme ends at the first ':' when everything
// before it is a valid scheme name, the network location follows "//" up to
// the first '/', '?' or '#', and the path runs up to '?' or '#'. Nothing is
// validated or decoded, so "%" sequences, ports and userinfo come back as
// written. Parameters after the first ';' of the last path segment are cut
// off. A network location with an unbalanced IPv6 bracket yields two empty
// strings.
func SplitURL(raw string) (host, path string) {
	rest := sanitize(raw)
	scheme := ""
	if i := strings.IndexByte(rest, ':'); i > 0 && isScheme(rest[:i]) {
		scheme = strings.ToLower(rest[:i])
		rest = rest[i+1:]
	}

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		host, rest = rest[:end], rest[end:]
		if strings.Contains(host, "[") != strings.Contains(host, "]") {
			return "", ""
		}
	}

	if end := strings.IndexAny(rest, "?#"); end >= 0 {
		rest = rest[:end]
	}
	if paramSchemes[scheme] {
		rest = cutParams(rest)
	}
	return host, rest
}

// sanitize drops leading control characters and spaces, and removes tabs and
// line breaks anywhere in the URL.
func sanitize(raw string) string {
	raw = strings.TrimLeftFunc(raw, func(r rune) bool { return r <= ' ' })
	return strings.NewReplacer("\t", "", "\r", "", "\n", "").Replace(raw)
}

func isScheme(s string) bool {
	if !isASCIILetter(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isASCIILetter(c) && (c < '0' || c > '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// cutParams removes ";params" from the last segment of path. A ';' in an
// earlier segment is kept.
func cutParams(path string) string {
	last := strings.LastIndexByte(path, '/')
	if i := strings.IndexByte(path[last+1:], ';'); i >= 0 {
		return path[:last+1+i]
	}
	return path
}

// HostOnly strips userinfo, IPv6 brackets and the port from a network
// location, leaving the host name.
func HostOnly(netloc string) string {
	if i := strings.LastIndexByte(netloc, '@'); i >= 0 {
		netloc = netloc[i+1:]
	}
	if strings.HasPrefix(netloc, "[") {
		if end := strings.IndexByte(netloc, ']'); end > 0 {
			return netloc[1:end]
		}
		return netloc
	}
	if i := strings.LastIndexByte(netloc, ':'); i >= 0 {
		return netloc[:i]
	}
	return netloc
}
