package root_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacknest/cmd/root"
	"stacknest/internal/models"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "stacknest", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "savings allocation engine")
	assert.Contains(t, root.Cmd.Long, "prioritized savings")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRun)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()

	configFlag := root.Cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)

	fixtureFlag := root.Cmd.PersistentFlags().Lookup("fixture")
	require.NotNil(t, fixtureFlag)
	assert.Equal(t, "f", fixtureFlag.Shorthand)
	assert.Equal(t, "", fixtureFlag.DefValue)
}

func TestFindAccount(t *testing.T) {
	checking := &models.Account{ID: uuid.New(), Name: "Checking"}
	savings := &models.Account{ID: uuid.New(), Name: "Savings"}

	orig := root.Accounts
	defer func() { root.Accounts = orig }()

	root.Accounts = []*models.Account{checking, savings}

	byName, ok := root.FindAccount("Savings")
	require.True(t, ok)
	assert.Equal(t, savings.ID, byName.ID)

	byID, ok := root.FindAccount(checking.ID.String())
	require.True(t, ok)
	assert.Equal(t, checking.ID, byID.ID)

	_, ok = root.FindAccount("")
	assert.False(t, ok, "empty selector is ambiguous with two accounts")

	_, ok = root.FindAccount("Vacation")
	assert.False(t, ok)

	root.Accounts = []*models.Account{checking}
	only, ok := root.FindAccount("")
	require.True(t, ok)
	assert.Equal(t, checking.ID, only.ID)
}
