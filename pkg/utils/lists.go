package utils

// StringListToMap creates a map[string]bool based on a []string
func StringListToMap(list []string) (res map[string]bool) {
	res = make(map[string]bool)
	for _, element := range list {
		res[element] = true
	}
	return
}

// FilterStringList keeps the elements of list present in keep. An empty
// keep map keeps everything.
func FilterStringList(list []string, keep map[string]bool) []string {
	if len(keep) == 0 {
		return list
	}
	var res []string
	for _, s := range list {
		if keep[s] {
			res = append(res, s)
		}
	}
	return res
}
