package fluxbind_test

import (
	"fmt"

	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
)

// greeterBuilder derives a greeting from a user store and a prefix prop.
type greeterBuilder struct {
	users *fluxbind.MapStore
}

func (b *greeterBuilder) BuildState(props fluxbind.Props, initial bool) fluxbind.State {
	name, _ := b.users.Get("name").(string)
	return fluxbind.State{"greeting": fmt.Sprintf("%v %s", props["prefix"], name)}
}

func Example() {
	users := fluxbind.NewMapStore()
	users.Set("name", "ada")

	binding := fluxbind.NewBinding(
		&greeterBuilder{users: users},
		fluxbind.Props{"prefix": "hello"},
		func(draft fluxbind.State) { fmt.Println("update:", draft["greeting"]) },
	)

	state := binding.Mount()
	fmt.Println("mounted:", state["greeting"])

	// The mount subscribed the builder to (users, "name"); this change
	// rebuilds and pushes the draft through the state-update function.
	users.Set("name", "grace")

	binding.Unmount()
	users.Set("name", "alan") // no longer subscribed, no update

	// Output:
	// mounted: hello ada
	// update: hello grace
}
