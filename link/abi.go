package link

// ABIPointers are the fixed, well-known OS ABI addresses injected as pointer
// variables when a module's header declares `abi: os`. The 4000-block holds
// the scalar slots, input_buf gets its own block below argv_base, and the
// program table sits in high RAM.
var ABIPointers = map[string]int{
	"char":            4000,
	"textloc":         4001,
	"arg1":            4002,
	"arg2":            4003,
	"res1":            4004,
	"res2":            4005,
	"pow2":            4006,
	"num_digits":      4007,
	"ascii_start":     4008,
	"no_input":        4009,
	"work1":           4010,
	"work2":           4011,
	"work3":           4012,
	"work4":           4013,
	"input_ptr":       4014,
	"cmd_len":         4015,
	"cmd_ready":       4016,
	"random_seed":     4017,
	"inc_random_seed": 4018,
	"bits_avail":      4019,
	"input_buf":       4100,
	"argv_base":       4400,
	"argv_buf":        4500,
	"prog_table":      10000,
}

// abiOrder fixes the order the aliases are rendered in, so regenerated
// modules are byte-for-byte reproducible.
var abiOrder = []string{
	"char", "textloc", "arg1", "arg2", "res1", "res2", "pow2", "num_digits",
	"ascii_start", "no_input", "work1", "work2", "work3", "work4",
	"input_ptr", "cmd_len", "cmd_ready", "random_seed", "inc_random_seed",
	"bits_avail", "input_buf", "argv_base", "argv_buf", "prog_table",
}
