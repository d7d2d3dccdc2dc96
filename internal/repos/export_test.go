package repos

var BuildDSN = buildDSN
