package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SymbolTable_Intern(t *testing.T) {
	assert := assert.New(t)

	table := NewSymbolTable()

	pay, err := table.Intern("pay", SymbolAction)
	assert.NoError(err)
	assert.Equal(ID(1), pay, "ids start at 1; 0 and -1 are reserved")

	alice, err := table.Intern("alice", SymbolIndividual)
	assert.NoError(err)
	assert.Equal(ID(2), alice)

	// re-interning returns the same id
	again, err := table.Intern("pay", SymbolAction)
	assert.NoError(err)
	assert.Equal(pay, again)
	assert.Equal(2, table.Len())

	// kind clash is an error
	_, err = table.Intern("pay", SymbolIndividual)
	assert.Error(err)
}

func Test_SymbolTable_Freeze(t *testing.T) {
	assert := assert.New(t)

	table := NewSymbolTable()
	pay, err := table.Intern("pay", SymbolAction)
	assert.NoError(err)

	table.Freeze()

	// known names still resolve
	again, err := table.Intern("pay", SymbolAction)
	assert.NoError(err)
	assert.Equal(pay, again)

	// new names do not
	_, err = table.Intern("deliver", SymbolAction)
	assert.Error(err)
}

func Test_SymbolTable_Name(t *testing.T) {
	assert := assert.New(t)

	table := NewSymbolTable()
	pay, _ := table.Intern("pay", SymbolAction)

	assert.Equal("pay", table.Name(pay))
	assert.Equal("0", table.Name(SkipActionID))
	assert.Equal("#viol", table.Name(ViolationActionID))
	assert.Equal("?99", table.Name(99))
}
