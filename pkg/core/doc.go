// Package core defines the shared language of the LeapSchema system.
//
// This package contains:
//   - Live metadata entities (ColumnInfo, NativeType)
//   - The canonical datatype enumeration and its mapping from native types
//   - The resolved storage model (Table, Column, Index)
//   - Configuration types shared by the CLI and adapters (TargetConfig, AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
