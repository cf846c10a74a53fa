package mrupdate

import "fmt"

// Rewrite builds a new manifest from the final dispositions. Mod files are
// emitted in mods order followed by others. Inputs are left untouched.
func Rewrite(m Manifest, mods []ResolvedMod, actions map[string]Action, others []File, t Target) (Manifest, error) {
	out := m.Clone()
	out.Files = make([]File, 0, len(mods)+len(others))

	if out.Dependencies == nil {
		out.Dependencies = make(map[string]string)
	}
	if t.Minecraft != "" {
		out.Dependencies[MinecraftKey] = t.Minecraft
	}
	if t.Loader != "" && t.LoaderVersion == "" {
		// Without a version the loader can only stay as it is.
		if _, ok := out.Dependencies[LoaderKey(t.Loader)]; !ok {
			return Manifest{}, fmt.Errorf("%w: loader %q has no version", ErrActionInvariant, t.Loader)
		}
	}
	if t.Loader != "" && t.LoaderVersion != "" {
		key := LoaderKey(t.Loader)
		for _, k := range loaderKeys {
			if k != key {
				delete(out.Dependencies, k)
			}
		}
		out.Dependencies[key] = t.LoaderVersion
	}

	for _, mod := range mods {
		a, ok := actions[mod.Entry.Path]
		if !ok {
			return Manifest{}, fmt.Errorf("%w: no action for %q", ErrActionInvariant, mod.Entry.Path)
		}
		switch a {
		case ActionRemove:
		case ActionKeep:
			out.Files = append(out.Files, mod.Entry.Clone())
		case ActionUpdate:
			if mod.Update == nil {
				return Manifest{}, fmt.Errorf("%w: update %q without payload", ErrActionInvariant, mod.Entry.Path)
			}
			out.Files = append(out.Files, mod.Update.Clone())
		case ActionDisable:
			f := mod.Entry.Clone()
			f.Path = DisabledPath(f.Path)
			out.Files = append(out.Files, f)
		default:
			return Manifest{}, fmt.Errorf("%w: %v for %q", ErrUnknownAction, a, mod.Entry.Path)
		}
	}
	for _, f := range others {
		out.Files = append(out.Files, f.Clone())
	}
	return out, nil
}
