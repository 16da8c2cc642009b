package schedsi

import "fmt"

// ModuleID identifies a Module within a World's arena. The zero value is
// never a valid, registered Module.
type ModuleID uint32

func (id ModuleID) String() string { return fmt.Sprintf("module#%d", uint32(id)) }

// ThreadID identifies a Thread within a World's arena. The zero value is
// never a valid, registered Thread.
type ThreadID uint32

func (id ThreadID) String() string { return fmt.Sprintf("thread#%d", uint32(id)) }

// Module is a node in the simulated hierarchy: it owns a set of Threads
// and exactly one scheduler thread (the entry point children trampoline
// into). Modules and Threads reference each other only through the
// World's arena-assigned IDs, never raw pointers, so the hierarchy has
// no cyclic ownership: a Thread knows its ModuleID, a Module knows the
// ThreadIDs it owns, and both are looked up through the World.
type Module struct {
	ID       ModuleID
	Name     string
	Parent   ModuleID // zero means "root module"
	HasRoot  bool     // false only for the synthetic root's own Parent
	Threads  []ThreadID
	Children []ModuleID
}
