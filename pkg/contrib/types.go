package contrib

import "fmt"

// Operation describes a bulk node operation sent to the xCAT3 service
type Operation int

const (
	// OperationCreate enrolls nodes
	OperationCreate Operation = iota + 1
	// OperationDelete unregisters nodes
	OperationDelete
	// OperationUpdate applies patches to nodes
	OperationUpdate
	// OperationImport enrolls nodes read from a data file
	OperationImport
	// OperationSetPower changes the power state
	OperationSetPower
	// OperationGetPower reads the power state
	OperationGetPower
	// OperationSetBootDevice changes the next boot device
	OperationSetBootDevice
	// OperationGetBootDevice reads the next boot device
	OperationGetBootDevice
	// OperationSetProvision starts deployment of nodes
	OperationSetProvision
)

var operationNames = map[Operation]string{
	OperationCreate:        "create",
	OperationDelete:        "delete",
	OperationUpdate:        "update",
	OperationImport:        "import",
	OperationSetPower:      "set-power",
	OperationGetPower:      "get-power",
	OperationSetBootDevice: "set-boot-device",
	OperationGetBootDevice: "get-boot-device",
	OperationSetProvision:  "set-provision",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// ParseOperation returns the operation with the given name
func ParseOperation(name string) (Operation, error) {
	for op, n := range operationNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// Mutating reports whether the operation changes state on the service.
// Outcomes of abandoned mutating batches are in doubt.
func (o Operation) Mutating() bool {
	switch o {
	case OperationGetPower, OperationGetBootDevice:
		return false
	default:
		return true
	}
}
