// Copyright 2026 The Vault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/wtsi-hgi/vault/internal/config"
)

// LDAPResolver implements Resolver against a directory server, using the
// attribute mapping in config.LDAPConfig.
type LDAPResolver struct {
	cfg config.LDAPConfig

	// dial opens a new connection per call, matching the short-lived
	// bind-search-unbind pattern directory clients typically use rather
	// than holding one long-lived connection across a whole sweep.
	dial func(cfg config.LDAPConfig) (*ldap.Conn, error)
}

// NewLDAPResolver builds a resolver bound to cfg.
func NewLDAPResolver(cfg config.LDAPConfig) *LDAPResolver {
	return &LDAPResolver{cfg: cfg, dial: dialLDAP}
}

func dialLDAP(cfg config.LDAPConfig) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(fmt.Sprintf("ldap://%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("identity: ldap dial: %w", err)
	}
	return conn, nil
}

// User resolves uid to a directory entry under cfg.UserDN.
func (r *LDAPResolver) User(uid uint32) (User, error) {
	conn, err := r.dial(r.cfg)
	if err != nil {
		return User{}, err
	}
	defer conn.Close()

	filter := fmt.Sprintf("(%s=%d)", r.cfg.UIDAttr, uid)
	req := ldap.NewSearchRequest(r.cfg.UserDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, 0, false, filter, []string{r.cfg.UIDAttr, r.cfg.NameAttr, r.cfg.MailAttr}, nil)

	res, err := conn.Search(req)
	if err != nil {
		return User{}, fmt.Errorf("identity: ldap search user %d: %w", uid, err)
	}
	if len(res.Entries) == 0 {
		return User{}, fmt.Errorf("%w: uid %d", ErrNoSuchIdentity, uid)
	}

	e := res.Entries[0]
	return User{
		UID:   uid,
		Name:  e.GetAttributeValue(r.cfg.NameAttr),
		Email: e.GetAttributeValue(r.cfg.MailAttr),
	}, nil
}

// GroupOwners resolves gid to the set of users listed as its owners
// (spec.md §3 "Group-owner record").
func (r *LDAPResolver) GroupOwners(gid uint32) ([]User, error) {
	conn, err := r.dial(r.cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	filter := fmt.Sprintf("(%s=%d)", r.cfg.GIDAttr, gid)
	req := ldap.NewSearchRequest(r.cfg.GroupDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, 0, false, filter, []string{r.cfg.OwnerAttr}, nil)

	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("identity: ldap search group %d: %w", gid, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%w: gid %d", ErrNoSuchIdentity, gid)
	}

	owners := res.Entries[0].GetAttributeValues(r.cfg.OwnerAttr)
	out := make([]User, 0, len(owners))
	for _, dn := range owners {
		u, err := r.userByDN(conn, dn)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *LDAPResolver) userByDN(conn *ldap.Conn, dn string) (User, error) {
	req := ldap.NewSearchRequest(dn, ldap.ScopeBaseObject, ldap.NeverDerefAliases,
		1, 0, false, "(objectClass=*)", []string{r.cfg.UIDAttr, r.cfg.NameAttr, r.cfg.MailAttr}, nil)

	res, err := conn.Search(req)
	if err != nil || len(res.Entries) == 0 {
		return User{}, fmt.Errorf("%w: dn %s", ErrNoSuchIdentity, dn)
	}
	e := res.Entries[0]
	var uid uint32
	fmt.Sscanf(e.GetAttributeValue(r.cfg.UIDAttr), "%d", &uid)
	return User{
		UID:   uid,
		Name:  e.GetAttributeValue(r.cfg.NameAttr),
		Email: e.GetAttributeValue(r.cfg.MailAttr),
	}, nil
}

// Email resolves uid to its directory e-mail address.
func (r *LDAPResolver) Email(uid uint32) (string, error) {
	u, err := r.User(uid)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
