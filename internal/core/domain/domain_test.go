package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationKey_OrderIndependent(t *testing.T) {
	req := require.New(t)
	req.Equal(ConversationKey("u1", "u2"), ConversationKey("u2", "u1"))
	req.Equal("u1_u2", ConversationKey("u1", "u2"))
	req.Equal("u1_u2", ConversationKey("u2", "u1"))
}

func TestConversationKey_DistinctPairs(t *testing.T) {
	req := require.New(t)
	pairs := [][2]string{
		{"u1", "u2"},
		{"u1", "u3"},
		{"u2", "u3"},
		{"alice", "bob"},
		{"bob", "carol"},
	}
	seen := map[string][2]string{}
	for _, p := range pairs {
		key := ConversationKey(p[0], p[1])
		prev, dup := seen[key]
		req.False(dup, "key %q collides: %v and %v", key, prev, p)
		seen[key] = p
	}
}

func TestConversationKey_SelfConversation(t *testing.T) {
	req := require.New(t)
	req.Equal("u1_u1", ConversationKey("u1", "u1"))
	req.Equal(ConversationKey("u1", "u1"), ConversationKey("u1", "u1"))
}

func TestValidIdentity(t *testing.T) {
	req := require.New(t)
	req.True(ValidIdentity("u1"))
	req.True(ValidIdentity("alice@example.com"))
	req.True(ValidIdentity("user-7.name+tag"))

	// '_' is the key separator and never part of an identity
	req.False(ValidIdentity("u_1"))
	req.False(ValidIdentity(""))
	req.False(ValidIdentity("user one"))
}
