package hclspec

type Plan struct {
	Minecraft     string `hcl:"minecraft,attr"`
	Loader        string `hcl:"loader,attr"`
	LoaderVersion string `hcl:"loader_version,optional"`
	Incompatible  string `hcl:"incompatible,optional"`
	Mods          []Mod  `hcl:"mod,block"`
}

type Mod struct {
	Path    string  `hcl:"path,label"`
	Name    string  `hcl:"name,optional"`
	Status  string  `hcl:"status,attr"`
	Project string  `hcl:"project,optional"`
	Version string  `hcl:"version,optional"`
	Error   string  `hcl:"error,optional"`
	Action  string  `hcl:"action,optional"`
	Update  *Update `hcl:"update,block"`
}

type Update struct {
	Path      string            `hcl:"path,attr"`
	Hashes    map[string]string `hcl:"hashes,attr"`
	Downloads []string          `hcl:"downloads,attr"`
	Size      int64             `hcl:"size,attr"`
}
