package sqlxrepos

import (
	"testing"

	"github.com/trezcool/studia/core"
)

func Test_orderBy(t *testing.T) {
	asc := func(field string) core.DBOrdering { return core.DBOrdering{Field: field, Ascending: true} }
	desc := func(field string) core.DBOrdering { return core.DBOrdering{Field: field} }

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		columns  map[string]bool
		want     string
	}{
		{name: "no ordering", columns: subjectOrderColumns},
		{
			name:     "known columns",
			ordering: []core.DBOrdering{asc("name"), desc("created_at")},
			columns:  subjectOrderColumns,
			want:     " ORDER BY name ASC, created_at DESC",
		},
		{
			name:     "unknown column dropped",
			ordering: []core.DBOrdering{asc("name"), asc("password_hash")},
			columns:  subjectOrderColumns,
			want:     " ORDER BY name ASC",
		},
		{
			name:     "injection attempt dropped",
			ordering: []core.DBOrdering{asc("name; DROP TABLE subject; --")},
			columns:  subjectOrderColumns,
			want:     "",
		},
		{
			name:     "columns are per table",
			ordering: []core.DBOrdering{asc("total_grade")},
			columns:  taskOrderColumns,
			want:     "",
		},
		{
			name:     "task columns",
			ordering: []core.DBOrdering{desc("priority"), asc("due_date")},
			columns:  taskOrderColumns,
			want:     " ORDER BY priority DESC, due_date ASC",
		},
		{
			name:     "week columns",
			ordering: []core.DBOrdering{asc("start_date")},
			columns:  weekOrderColumns,
			want:     " ORDER BY start_date ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderBy(tt.ordering, tt.columns); got != tt.want {
				t.Errorf("orderBy() = %q, want %q", got, tt.want)
			}
		})
	}
}
