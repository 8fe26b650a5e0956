// internal/gendertext/gendertext.go
//
// Hebrew verbs and adjectives agree in gender with their plural subject. When
// the couple writes "we are happy to invite you", the word for "happy" is
// שמחות if both partners are brides and שמחים for every other pairing
// (mixed or two grooms, since masculine plural is the Hebrew default for
// mixed groups). The mapping is a fixed table keyed by the two partner role
// tags, never inferred from names.
package gendertext

import (
	"fmt"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

type form struct {
	masculine string
	feminine  string
}

var vocabulary = map[string]form{
	"happy":    {masculine: "שמחים", feminine: "שמחות"},
	"excited":  {masculine: "נרגשים", feminine: "נרגשות"},
	"waiting":  {masculine: "מחכים", feminine: "מחכות"},
	"grateful": {masculine: "מודים", feminine: "מודות"},
	"inviting": {masculine: "מזמינים", feminine: "מזמינות"},
}

// Keys lists the semantic keys the engine resolves.
func Keys() []string {
	keys := make([]string, 0, len(vocabulary))
	for k := range vocabulary {
		keys = append(keys, k)
	}
	return keys
}

// Known reports whether key is part of the vocabulary.
func Known(key string) bool {
	_, ok := vocabulary[key]
	return ok
}

// Resolve maps a semantic key plus the couple's two role tags to the
// grammatically correct plural form. Pure function of exactly these inputs.
func Resolve(key string, role1, role2 model.PartnerRole) (string, error) {
	f, ok := vocabulary[key]
	if !ok {
		return "", fmt.Errorf("unknown gendered key %q", key)
	}
	if role1 == model.RoleBride && role2 == model.RoleBride {
		return f.feminine, nil
	}
	return f.masculine, nil
}
