// Package greenops turns the global-warming potential of an estimate into
// figures people can relate to, and formats impact numbers for display.
//
// Totals are in kg CO2-eq. Equivalencies use published average factors for
// passenger-car travel, tree-seedling sequestration and household
// electricity, so they are indicative only.
package greenops
