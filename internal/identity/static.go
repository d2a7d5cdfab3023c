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

// StaticResolver is a map-backed Resolver for tests, playing the same
// role the clock package's SimulatedClock plays for time.
type StaticResolver struct {
	Users       map[uint32]User
	GroupOwning map[uint32][]uint32
}

// NewStaticResolver builds an empty StaticResolver ready for population.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		Users:       map[uint32]User{},
		GroupOwning: map[uint32][]uint32{},
	}
}

func (r *StaticResolver) User(uid uint32) (User, error) {
	u, ok := r.Users[uid]
	if !ok {
		return User{}, ErrNoSuchIdentity
	}
	return u, nil
}

func (r *StaticResolver) GroupOwners(gid uint32) ([]User, error) {
	uids, ok := r.GroupOwning[gid]
	if !ok {
		return nil, ErrNoSuchIdentity
	}
	out := make([]User, 0, len(uids))
	for _, uid := range uids {
		u, err := r.User(uid)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *StaticResolver) Email(uid uint32) (string, error) {
	u, err := r.User(uid)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
