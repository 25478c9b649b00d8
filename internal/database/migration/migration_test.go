package migration

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterMigrationsAreComplete(t *testing.T) {
	steps := RegisterMigrations()
	names := make([]string, 0, len(steps))
	for name, step := range steps {
		assert.NotNil(t, step.Up, name)
		assert.NotNil(t, step.Down, name)
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, "01_create_bulk_jobs_table", names[0])
	assert.Equal(t, "04_add_indexes", names[len(names)-1])
}

func TestIndexesNameTheirDDL(t *testing.T) {
	for _, idx := range indexes {
		assert.True(t, strings.Contains(idx.ddl, " "+idx.name+" "), idx.name)
	}
}
