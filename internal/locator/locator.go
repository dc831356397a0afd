// Package locator maps document types to container URLs inside a pod.
//
// Every function here is pure: the same input always yields the same URL, so
// a container written earlier can be found again without listing the pod.
package locator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dtroode/podkeeper/internal/model"
)

const (
	profileSegment = "profile"
	// ProfilePath is appended to a pod root to obtain the owner's WebID.
	ProfilePath = "profile/card#me"
	// MetadataName is the name of the metadata dataset inside each container.
	MetadataName = "document.jsonld"
	// ActivityPath is the activity resource relative to a pod root.
	ActivityPath = "public/active.jsonld"
)

var encodedTypes = map[model.DocumentType]string{
	model.DocumentTypeBankStatement:  "Bank%20Statement",
	model.DocumentTypePassport:       "Passport",
	model.DocumentTypeDriversLicense: "Drivers%20License",
	model.DocumentTypeGeneric:        "Users",
}

// Encode returns the container segment of a document type.
func Encode(docType model.DocumentType) (string, error) {
	seg, ok := encodedTypes[docType]
	if !ok {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidDocumentType, string(docType))
	}
	return seg, nil
}

// ParseDocumentType accepts a display name ("Bank Statement") or its encoded
// container segment ("Bank%20Statement").
func ParseDocumentType(s string) (model.DocumentType, error) {
	for docType, seg := range encodedTypes {
		if s == string(docType) || s == seg {
			return docType, nil
		}
	}
	return "", fmt.Errorf("%w: %q", model.ErrInvalidDocumentType, s)
}

// Locate returns the container URL for docType. ScopeSelf uses the owner's
// root, ScopeCross uses otherRoot as given.
func Locate(owner model.UserIdentity, docType model.DocumentType, scope model.Scope, otherRoot string) (string, error) {
	seg, err := Encode(docType)
	if err != nil {
		return "", err
	}

	var root string
	switch scope {
	case model.ScopeSelf:
		root = owner.RootURL
		if root == "" {
			root = RootFromWebID(owner.Identifier)
		}
	case model.ScopeCross:
		root = otherRoot
	default:
		return "", fmt.Errorf("%w: unknown scope %d", model.ErrAddressing, scope)
	}
	if root == "" {
		return "", model.ErrMissingRoot
	}

	return withSlash(root) + seg + "/", nil
}

// MetadataURL returns the metadata dataset URL of a container.
func MetadataURL(containerURL string) string {
	return withSlash(containerURL) + MetadataName
}

// ActivityURL returns the activity resource URL of a pod.
func ActivityURL(root string) string {
	return withSlash(root) + ActivityPath
}

// RootFromWebID returns the part of a WebID before its profile path
// segment, or "" when the WebID has none.
func RootFromWebID(webID string) string {
	u, err := url.Parse(webID)
	if err != nil || u.Host == "" {
		return ""
	}
	segments := strings.Split(u.EscapedPath(), "/")
	for i, segment := range segments {
		if segment == profileSegment {
			return u.Scheme + "://" + u.Host + strings.Join(segments[:i], "/") + "/"
		}
	}
	return ""
}

// Identity resolves a WebID into a UserIdentity.
func Identity(webID string) (model.UserIdentity, error) {
	root := RootFromWebID(webID)
	if root == "" {
		return model.UserIdentity{}, fmt.Errorf("%w: webid %q has no profile segment", model.ErrMissingRoot, webID)
	}
	return model.UserIdentity{Identifier: webID, RootURL: root}, nil
}

// ResolveSubject turns what a caseworker typed (a pod URL, a WebID or a bare
// username on the identity provider) into the subject's identity.
func ResolveSubject(subject, provider string) (model.UserIdentity, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return model.UserIdentity{}, model.ErrMissingSubject
	}

	if strings.HasPrefix(subject, "http://") || strings.HasPrefix(subject, "https://") {
		if root := RootFromWebID(subject); root != "" {
			return model.UserIdentity{Identifier: subject, RootURL: root}, nil
		}
		root := withSlash(subject)
		return model.UserIdentity{Identifier: root + ProfilePath, RootURL: root}, nil
	}

	root, err := PodURL(subject, provider)
	if err != nil {
		return model.UserIdentity{}, err
	}
	return model.UserIdentity{Identifier: root + ProfilePath, RootURL: root}, nil
}

// PodURL returns the root of username's pod on the identity provider.
func PodURL(username, provider string) (string, error) {
	u, err := url.Parse(provider)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid identity provider %q", model.ErrAddressing, provider)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s.%s/", scheme, username, u.Host), nil
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
