package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the URI scheme of document URIs.
const Scheme = "content"

const documentSegment = "document"

// Characters url.QueryEscape encodes that are unreserved for content URIs.
var unreservedReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeDocumentID percent-encodes id as a single URI path segment. Letters,
// digits and _-!.~'()* are kept, everything else is encoded.
func EncodeDocumentID(id string) string {
	return unreservedReplacer.Replace(url.QueryEscape(id))
}

// BuildContentURI returns "content://<authority>/document/<encoded id>".
func BuildContentURI(authority, id string) string {
	return Scheme + "://" + authority + "/" + documentSegment + "/" + EncodeDocumentID(id)
}

// ParseContentURI extracts the authority and document ID from a document URI.
func ParseContentURI(uri string) (authority, id string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", newError(OpDecode, uri, KindInvalidArgument, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}
	if u.Scheme != Scheme {
		return "", "", newError(OpDecode, uri, KindInvalidArgument,
			fmt.Errorf("%w: unsupported scheme %q", ErrInvalidArgument, u.Scheme))
	}

	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if len(segments) != 2 || segments[0] != documentSegment || segments[1] == "" {
		return "", "", newError(OpDecode, uri, KindInvalidArgument,
			fmt.Errorf("%w: not a document URI", ErrInvalidArgument))
	}

	id, err = url.PathUnescape(segments[1])
	if err != nil {
		return "", "", newError(OpDecode, uri, KindInvalidArgument, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}
	return u.Host, id, nil
}
