package domain

// ToGlobal maps a row-major index inside window (winCol, winRow) of extent
// numCols × numRows back to tile pixel coordinates.
func ToGlobal(numCols, numRows, winCol, winRow, localIdx int) (col, row int) {
	localRow, localCol := localIdx/numCols, localIdx%numCols
	return localCol + numCols*winCol, localRow + numRows*winRow
}

// ToLocal is the inverse of ToGlobal.
func ToLocal(numCols, numRows, col, row int) (winCol, winRow, localIdx int) {
	winCol, winRow = col/numCols, row/numRows
	return winCol, winRow, (row%numRows)*numCols + col%numCols
}
