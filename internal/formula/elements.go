package formula

// Standard average atomic weights (g/mol).
var atomicWeights = map[string]float64{
	"H":  1.00794,
	"D":  2.014101778,
	"He": 4.002602,
	"Li": 6.941,
	"Be": 9.012182,
	"B":  10.811,
	"C":  12.0107,
	"N":  14.0067,
	"O":  15.9994,
	"F":  18.9984032,
	"Ne": 20.1797,
	"Na": 22.98976928,
	"Mg": 24.305,
	"Al": 26.9815386,
	"Si": 28.0855,
	"P":  30.973762,
	"S":  32.065,
	"Cl": 35.453,
	"Ar": 39.948,
	"K":  39.0983,
	"Ca": 40.078,
	"Sc": 44.955912,
	"Ti": 47.867,
	"V":  50.9415,
	"Cr": 51.9961,
	"Mn": 54.938045,
	"Fe": 55.845,
	"Co": 58.933195,
	"Ni": 58.6934,
	"Cu": 63.546,
	"Zn": 65.38,
	"Ga": 69.723,
	"Ge": 72.64,
	"As": 74.9216,
	"Se": 78.96,
	"Br": 79.904,
	"Kr": 83.798,
	"Rb": 85.4678,
	"Sr": 87.62,
	"Y":  88.90585,
	"Zr": 91.224,
	"Nb": 92.90638,
	"Mo": 95.96,
	"Ru": 101.07,
	"Rh": 102.9055,
	"Pd": 106.42,
	"Ag": 107.8682,
	"Cd": 112.411,
	"In": 114.818,
	"Sn": 118.71,
	"Sb": 121.76,
	"Te": 127.6,
	"I":  126.90447,
	"Xe": 131.293,
	"Cs": 132.9054519,
	"Ba": 137.327,
	"W":  183.84,
	"Pt": 195.084,
	"Au": 196.966569,
	"Hg": 200.59,
	"Pb": 207.2,
	"Bi": 208.9804,
}
