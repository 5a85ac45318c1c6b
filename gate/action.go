package gate

// Action is the operation a user attempts on a resource type.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Actions lists every known action, in menu order.
func Actions() []Action {
	return []Action{ActionList, ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionExport}
}
